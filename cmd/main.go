package main

// main is the entry point of the crashgram CLI. It delegates to Execute,
// which runs the Cobra command tree defined in root.go.
func main() {
	Execute()
}
