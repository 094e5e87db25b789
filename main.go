package main

import "JNChoral/cmd"

func main() {
	cmd.Execute()
}
