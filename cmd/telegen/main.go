/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/RachelyGit283/Dummy-telementry-sub000/cmd/telegen/cmd"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
