package main

import "github.com/gregLibert/mrtd/cmd"

func main() {
	cmd.Execute()
}
