// showhidden lists channels the viewer's permissions hide, marked as hidden,
// with their content replaced by a locked notice.
package main

import "github.com/ppiankov/showhidden/internal/cli"

func main() {
	cli.Execute()
}
