//go:build debug

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package log

import "github.com/sirupsen/logrus"

// Debug builds start at debug level and stamp every entry with its caller.
func init() {
	logger.SetLevel(logrus.DebugLevel)
	logger.SetReportCaller(true)
	logger.SetFormatter(&logrus.TextFormatter{CallerPrettyfier: shortCaller})
}
