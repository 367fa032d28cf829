package main

import "github.com/sitesmith-ai/sitesmith-backend/cmd"

func main() {
	cmd.Init()
}
