// Package main implements the vcm CLI.
package main

func main() {
	Execute()
}
