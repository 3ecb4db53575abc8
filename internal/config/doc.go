// Package config provides configuration structures and utilities for ContactScan.
// It defines the main configuration options for harvesting contact signals,
// crawling settings, and report generation preferences.
package config
