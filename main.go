// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/marjacob/setup-terminal/cmd/setup-terminal"

func main() {
	cmd.Execute()
}
