/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import "ghooey/cmd"

func main() {
	cmd.Execute()
}
