//go:build linux

// File: backend/pollset/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Edge-triggered epoll multiplexer (EpollCreate1/EpollCtl/EpollWait,
// EPOLLET on every op fd). Cross-thread wake uses an eventfd, registered
// level-triggered, the native OS mechanism for unblocking a thread stuck
// in EpollWait.
package pollset

import (
	"time"

	"golang.org/x/sys/unix"
)

type epollMux struct {
	epfd   int
	wakeFd int
}

func newMux() (mux, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wfd),
	}); err != nil {
		unix.Close(wfd)
		unix.Close(epfd)
		return nil, err
	}
	return &epollMux{epfd: epfd, wakeFd: wfd}, nil
}

func (m *epollMux) add(fd int, read, write bool) error {
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: epollMask(read, write),
		Fd:     int32(fd),
	})
}

func (m *epollMux) modify(fd int, read, write bool) error {
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: epollMask(read, write),
		Fd:     int32(fd),
	})
}

func (m *epollMux) remove(fd int) error {
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (m *epollMux) wait(timeout time.Duration) ([]readyFD, error) {
	events := make([]unix.EpollEvent, 128)
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(m.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]readyFD, 0, n)
	for i := 0; i < n; i++ {
		ev := events[i]
		if int(ev.Fd) == m.wakeFd {
			var buf [8]byte
			unix.Read(m.wakeFd, buf[:])
			continue
		}
		out = append(out, readyFD{
			fd:       int(ev.Fd),
			readable: ev.Events&unix.EPOLLIN != 0,
			write:    ev.Events&unix.EPOLLOUT != 0,
		})
	}
	return out, nil
}

func (m *epollMux) wake() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(m.wakeFd, one[:])
	return err
}

func (m *epollMux) close() error {
	unix.Close(m.wakeFd)
	return unix.Close(m.epfd)
}

func epollMask(read, write bool) uint32 {
	var ev uint32 = unix.EPOLLET
	if read {
		ev |= unix.EPOLLIN
	}
	if write {
		ev |= unix.EPOLLOUT
	}
	return ev
}
