// Command wizard-session runs the profile wizard session layer against a
// profile API: it resumes the saved draft, guards navigation and autosaves
// every change.
package main

func main() {
	Execute()
}
