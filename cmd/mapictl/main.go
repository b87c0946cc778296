// Command mapictl exercises the MAPI allocation layer: it runs allocation
// self-checks, reports heap allocator statistics and decodes property tags.
package main

func main() {
	execute()
}
