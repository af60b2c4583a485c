package util

import (
	"bufio"
	"fmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ctrlListeners = make(map[string]*CtrlListener)
var ctrlMutex sync.Mutex

// CtrlListener accepts line-oriented commands on a unix socket and dispatches them by their first token.
// Each line is answered with "ok" or "error (...)".
//
type CtrlListener struct {
	listener  net.Listener
	callbacks map[string][]func(string) error
	lock      sync.Mutex
	running   bool
}

// CtrlSocketPath is where GetCtrlListener(root, id) listens.
func CtrlSocketPath(root, id string) string {
	return filepath.Join(root, fmt.Sprintf("%s.%d.sock", id, os.Getpid()))
}

// GetCtrlListener returns the listener for root/id, creating it on first use.
func GetCtrlListener(root, id string) (*CtrlListener, error) {
	ctrlMutex.Lock()
	defer ctrlMutex.Unlock()

	key := filepath.Join(root, id)
	if cl, found := ctrlListeners[key]; found {
		return cl, nil
	}

	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "error creating [%s]", root)
	}
	unixAddress, err := net.ResolveUnixAddr("unix", CtrlSocketPath(root, id))
	if err != nil {
		return nil, errors.Wrap(err, "error resolving unix address")
	}
	listener, err := net.ListenUnix("unix", unixAddress)
	if err != nil {
		return nil, errors.Wrap(err, "error listening")
	}
	cl := &CtrlListener{listener: listener, callbacks: make(map[string][]func(string) error)}
	ctrlListeners[key] = cl
	return cl, nil
}

func (self *CtrlListener) AddCallback(keyword string, f func(string) error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.callbacks[keyword] = append(self.callbacks[keyword], f)
}

func (self *CtrlListener) Start() {
	self.lock.Lock()
	defer self.lock.Unlock()
	if !self.running {
		self.running = true
		go self.run()
	}
}

func (self *CtrlListener) Addr() net.Addr {
	return self.listener.Addr()
}

func (self *CtrlListener) run() {
	logrus.Infof("[%s] started", self.listener.Addr())
	defer logrus.Infof("[%s] exited", self.listener.Addr())

	for {
		conn, err := self.listener.Accept()
		if err != nil {
			if err == io.EOF || strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			logrus.Errorf("error accepting ctrl connection (%v)", err)
			return
		}
		go self.handle(conn)
	}
}

func (self *CtrlListener) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			return
		} else if err != nil {
			logrus.Errorf("error reading (%v)", err)
			return
		}

		response := self.dispatch(strings.TrimSpace(line))
		if _, err := conn.Write([]byte(response + "\n")); err != nil {
			logrus.Errorf("error responding (%v)", err)
			return
		}
	}
}

func (self *CtrlListener) dispatch(line string) string {
	tokens := strings.Fields(line)
	if len(tokens) < 1 {
		return "syntax error?"
	}
	self.lock.Lock()
	fs, found := self.callbacks[tokens[0]]
	self.lock.Unlock()
	if !found {
		logrus.Errorf("no callback for [%s]", line)
		return "syntax error?"
	}
	for _, f := range fs {
		if err := f(line); err != nil {
			logrus.Errorf("error executing callback (%v)", err)
			return fmt.Sprintf("error (%v)", err)
		}
	}
	return "ok"
}

// SendCtrl connects to a ctrl socket, sends one command and returns the reply line.
func SendCtrl(socketPath, command string) (string, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return "", errors.Wrapf(err, "error dialing [%s]", socketPath)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", errors.Wrap(err, "error writing command")
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "error reading reply")
	}
	return strings.TrimSpace(reply), nil
}
