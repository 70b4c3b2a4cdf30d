package main

import "csv-insights/cmd"

func main() {
	cmd.Execute()
}
