package main

import "github.com/rkellner/gitline/cmd"

func main() {
	cmd.Execute()
}
