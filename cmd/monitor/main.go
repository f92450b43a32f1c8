// Command monitor attaches to a running whiteboard server as a headless
// client. Server traffic prints to stdout, and lines typed on stdin go to
// the server, so protocol commands can be issued by hand.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
)

func main() {
	addr := "127.0.0.1:4444"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected to whiteboard server:", addr)

	go func() {
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
			fmt.Fprintln(conn, in.Text())
		}
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Println(sc.Text())
	}
	fmt.Println("Disconnected.")
}
