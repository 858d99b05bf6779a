package main

import "github.com/memtrace/memtrace/cmd"

func main() {
	cmd.Execute()
}
