package main

import "infercheck/cli"

func main() {
	cli.Execute()
}
