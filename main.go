package main

import "routerswitcher/cmd"

func main() {
	cmd.Execute()
}
