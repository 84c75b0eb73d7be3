package main

import "github.com/delloop-lab/taskorilla-sub000/cmd"

func main() {
	cmd.Execute()
}
