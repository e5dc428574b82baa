// Package main is the entry point for stacgate.
package main

func main() {
	Execute()
}
