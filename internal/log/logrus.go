// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log holds the shared logrus logger used by synconn and its tools.
//
// Every component gets a tagged entry from NewLogger; the TaggedHook renders
// the tag as a "[tag]: " prefix on the message instead of a separate field.
package log

import (
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetLevel(logrus.WarnLevel)
	logger.AddHook(new(TaggedHook))
}

// NewLogger returns an entry of the shared logger carrying tag.
func NewLogger(tag string) *logrus.Entry {
	return logrus.NewEntry(logger).WithField("tag", tag)
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

func SetLevel(level logrus.Level) {
	logger.SetLevel(level)
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// ParseLevel accepts logrus level names; an empty string means warn.
func ParseLevel(s string) (logrus.Level, error) {
	if strings.TrimSpace(s) == "" {
		return logrus.WarnLevel, nil
	}
	return logrus.ParseLevel(s)
}

type TaggedHook struct{}

func (h *TaggedHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *TaggedHook) Fire(entry *logrus.Entry) error {
	if tagObj, loaded := entry.Data["tag"]; loaded {
		tag, ok := tagObj.(string)
		if !ok {
			return nil
		}
		delete(entry.Data, "tag")
		entry.Message = strings.ReplaceAll(entry.Message, tag+": ", "")
		entry.Message = "[" + tag + "]: " + entry.Message
	}
	return nil
}

// shortCaller renders a caller frame as its package-qualified function name and
// a "dir/file.go:line" location, dropping the import path and the absolute
// directory prefix.
func shortCaller(frame *runtime.Frame) (function string, file string) {
	function = frame.Function
	if i := strings.LastIndexByte(function, '/'); i >= 0 {
		function = function[i+1:]
	}
	dir, name := path.Split(frame.File)
	file = path.Join(path.Base(dir), name) + ":" + strconv.Itoa(frame.Line)
	return
}
