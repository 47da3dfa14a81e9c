//go:build !linux && !windows

// File: backend/pollset/kqueue_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// kqueue multiplexer for Darwin/BSD, generalized from the pattern in
// _examples/other_examples/LeGamerDc-gio__poller.go (EVFILT_READ/WRITE
// registration, a dedicated EVFILT_USER wake event) into this backend's
// mux contract.
package pollset

import (
	"time"

	"golang.org/x/sys/unix"
)

const wakeIdent = 1

type kqueueMux struct {
	kq int
}

func newMux() (mux, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	wake := unix.Kevent_t{
		Ident:  wakeIdent,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{wake}, nil, nil); err != nil {
		unix.Close(kq)
		return nil, err
	}
	return &kqueueMux{kq: kq}, nil
}

func (m *kqueueMux) add(fd int, read, write bool) error {
	return m.modify(fd, read, write)
}

func (m *kqueueMux) modify(fd int, read, write bool) error {
	var changes []unix.Kevent_t
	if read {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ONESHOT})
	}
	if write {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ONESHOT})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(m.kq, changes, nil, nil)
	return err
}

func (m *kqueueMux) remove(fd int) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	unix.Kevent(m.kq, changes, nil, nil)
	return nil
}

func (m *kqueueMux) wait(timeout time.Duration) ([]readyFD, error) {
	events := make([]unix.Kevent_t, 128)
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(m.kq, nil, events, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]readyFD, 0, n)
	for i := 0; i < n; i++ {
		ev := events[i]
		if ev.Filter == unix.EVFILT_USER && ev.Ident == wakeIdent {
			continue
		}
		out = append(out, readyFD{
			fd:       int(ev.Ident),
			readable: ev.Filter == unix.EVFILT_READ,
			write:    ev.Filter == unix.EVFILT_WRITE,
		})
	}
	return out, nil
}

func (m *kqueueMux) wake() error {
	trigger := unix.Kevent_t{Ident: wakeIdent, Filter: unix.EVFILT_USER, Fflags: unix.NOTE_TRIGGER}
	_, err := unix.Kevent(m.kq, []unix.Kevent_t{trigger}, nil, nil)
	return err
}

func (m *kqueueMux) close() error {
	return unix.Close(m.kq)
}
