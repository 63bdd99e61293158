// Package debug appends timestamped traces to debug.log in the working
// directory. The file is opened on first use.
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/roffe/hkgcan/pkg/dbc"
)

var (
	mu       sync.Mutex
	initOnce sync.Once
	fh       *os.File
	path     = "debug.log"
)

// SetPath changes the trace file, it must be called before the first trace.
func SetPath(p string) {
	mu.Lock()
	defer mu.Unlock()
	path = p
}

func start() {
	var err error
	fh, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("error opening file: %v", err)
	}
}

func Log(msg string) {
	timeStr := time.Now().Format("2006-01-02 15:04:05.000")
	_, fullPath, line, ok := runtime.Caller(1)
	if ok {
		LogRaw(fmt.Sprintf("%s %s:%d %s", timeStr, filepath.Base(fullPath), line, msg))
	} else {
		LogRaw(timeStr + " " + msg)
	}
}

// Frame traces a frame with a direction tag such as TX or RX.
func Frame(dir string, f dbc.Frame) {
	LogRaw(time.Now().Format("2006-01-02 15:04:05.000") + " " + dir + " " + f.String())
}

func LogRaw(msg string) {
	mu.Lock()
	defer mu.Unlock()
	initOnce.Do(start)
	if fh == nil {
		return
	}
	fh.WriteString(msg + "\n")
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if fh == nil {
		return
	}
	fh.Sync()
	fh.Close()
	fh = nil
}
