// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "code.hybscloud.com/synconn/internal/cli"

func main() {
	cli.Execute()
}
