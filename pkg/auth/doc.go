// Package auth stores portal passwords outside config.yml.
//
// The Manager tries the system keyring first, then an encrypted file in the
// user config directory, then the LEARNSCRAPER_USERNAME/LEARNSCRAPER_PASSWORD
// environment variables. The scraper consults it only when the config file
// leaves the password empty.
package auth
