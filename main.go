package main

import "github.com/iksnae/askdata/cmd"

func main() {
	cmd.Execute()
}
