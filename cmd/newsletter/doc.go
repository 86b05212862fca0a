// Command newsletter manages a 52-week email newsletter campaign: it stores
// the records, checks their content, plans send dates, and moves the
// collection in and out of CSV, JSON, HTML and mail formats.
package main
