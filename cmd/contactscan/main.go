// Package main provides the entry point for the ContactScan CLI.
//
// ContactScan crawls websites and harvests publicly listed contact signals:
// email addresses, phone numbers, social media profile links, and page
// metadata.
//
// Usage:
//
//	contactscan scan <url>
//	contactscan scan --recursive <url>
//
// See --help for all available options.
package main

// main is the entry point for ContactScan.
func main() {
	Execute()
}
