// Command qs decodes, encodes and inspects structured query strings.
package main

func main() {
	Execute()
}
