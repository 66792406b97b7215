package main

import "github.com/vietddude/lazygate/internal/cli"

func main() {
	cli.Execute()
}
