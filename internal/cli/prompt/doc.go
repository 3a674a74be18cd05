// Package prompt provides interactive CLI prompts: yes/no confirmation,
// password entry and choosing one item from a list.
//
// Every prompt has a constructor bound to stdin/stdout and a WithIO
// variant taking an explicit reader and writer for tests.
package prompt
