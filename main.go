package main

import "timeboard/cmd"

func main() {
	cmd.Execute()
}
