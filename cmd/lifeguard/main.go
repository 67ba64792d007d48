// Package main is the entry point for the lifeguard command.
package main

func main() {
	Execute()
}
