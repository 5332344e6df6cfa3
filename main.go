package main

import "github.com/andresmejia3/formcheck/cmd"

func main() {
	cmd.Execute()
}
