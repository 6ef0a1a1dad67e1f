package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/someone42/powerbook-keyboard-usb/host/link"
)

var (
	device = flag.String("device", "/dev/ttyUSB0", "Diagnostic UART device path")
)

func main() {
	flag.Parse()

	fmt.Println("kbmonitor - PowerBook keyboard/mouse bridge diagnostic link")
	fmt.Println("=============================================================")
	fmt.Println()

	fmt.Printf("Connecting to %s...\n", *device)
	conn, err := link.Connect(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("Connected.")

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.Fields(line)[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "ping":
			if err := conn.Ping(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println("pong")

		case "keys":
			state, err := conn.GetKeyState()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			printKeyState(state)

		case "mouse":
			state, err := conn.GetMouseState()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			printMouseState(state)

		case "events":
			data, err := conn.DumpEvents()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("events: %d compressed bytes\n", len(data))

		case "watch":
			fmt.Println("Watching telemetry pushes (Ctrl+C to stop)...")
			if err := conn.WatchMouse(printMouseState); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", line)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("Available commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  ping           - Ping the firmware")
	fmt.Println("  keys           - Print currently-pressed scan codes")
	fmt.Println("  mouse          - Print mouse button/delta/timeout snapshot")
	fmt.Println("  events         - Dump the compressed timing ring buffer")
	fmt.Println("  watch          - Print each unsolicited telemetry push")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

func printKeyState(state link.KeyState) {
	fmt.Printf("keys pressed (%d): ", len(state.KeysPressed))
	for i, sc := range state.KeysPressed {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("0x%02x", sc)
	}
	fmt.Println()
}

func printMouseState(state link.MouseState) {
	fmt.Printf("button1=%v button2=%v dx=%d dy=%d adb_timeouts=%d\n",
		state.Button1, state.Button2, state.AccX, state.AccY, state.ADBTimeouts)
}
