package main

import "github.com/fastrpc-go/frps/cmd/frpsdump/cmd"

func main() {
	cmd.Execute()
}
