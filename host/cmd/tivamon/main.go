package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tivahal/host/link"
	"tivahal/host/serial"
	"tivahal/host/snapshot"
	"tivahal/mmio"
	"tivahal/sim"
	"tivahal/tm4c"
)

var (
	device   = flag.String("device", "", "Serial device path (empty = built-in simulator)")
	baud     = flag.Int("baud", 115200, "Baud rate")
	snapPath = flag.String("snapshot", "", "Intel HEX snapshot to seed the simulator")
	verbose  = flag.Bool("verbose", false, "Enable verbose output")
)

// session is the register bus under inspection plus whatever extra powers
// the backing store grants (tracing and snapshots exist only on the
// simulator, ping only on a live link).
type session struct {
	bus    mmio.Bus
	simBus *sim.Bus
	client *link.Client
}

func main() {
	flag.Parse()

	fmt.Println("tivamon - TM4C123 register monitor")

	s, cleanup, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

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

		args := strings.Fields(line)
		switch args[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		default:
			if err := s.run(args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func openSession() (*session, func(), error) {
	if *device == "" {
		bus := sim.New()
		if *snapPath != "" {
			f, err := os.Open(*snapPath)
			if err != nil {
				return nil, nil, err
			}
			bus, err = func() (*sim.Bus, error) {
				defer f.Close()
				return snapshot.Load(f)
			}()
			if err != nil {
				return nil, nil, err
			}
			fmt.Printf("Loaded snapshot from %s\n", *snapPath)
		}
		installClockModel(bus)
		fmt.Println("Using built-in simulator")
		return &session{bus: bus, simBus: bus}, func() {}, nil
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	fmt.Printf("Connecting to %s...\n", *device)
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	c := link.NewClient(port)
	if err := c.Ping(); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("target not responding: %w", err)
	}
	if err := c.Handshake(); err != nil {
		port.Close()
		return nil, nil, err
	}
	fmt.Println("Connected")
	return &session{bus: c.Bus(), client: c}, func() { port.Close() }, nil
}

// installClockModel makes peripheral bring-up work on the simulator by
// mirroring each clock gate register into its ready register, the way the
// hardware does after its settle delay.
func installClockModel(bus *sim.Bus) {
	gates := []struct{ rcgc, pr uint32 }{
		{0x400FE608, 0x400FEA08}, // GPIO
		{0x400FE604, 0x400FEA04}, // 16/32-bit timers
		{0x400FE65C, 0x400FEA5C}, // 32/64-bit timers
		{0x400FE638, 0x400FEA38}, // ADC
		{0x400FE644, 0x400FEA44}, // QEI
	}
	for _, g := range gates {
		pr := g.pr
		bus.OnWrite(g.rcgc, func(old, next uint32) uint32 {
			bus.Poke(pr, next)
			return next
		})
	}
}

func (s *session) run(args []string) error {
	switch args[0] {
	case "read":
		if len(args) != 2 {
			return fmt.Errorf("usage: read ADDR")
		}
		addr, err := parseU32(args[1])
		if err != nil {
			return err
		}
		v := s.bus.Read32(addr)
		if err := s.linkErr(); err != nil {
			return err
		}
		if name := regName(addr); name != "" {
			fmt.Printf("[%#08x] %s = %#08x\n", addr, name, v)
		} else {
			fmt.Printf("[%#08x] = %#08x\n", addr, v)
		}
		return nil

	case "write":
		if len(args) != 3 {
			return fmt.Errorf("usage: write ADDR VALUE")
		}
		addr, err := parseU32(args[1])
		if err != nil {
			return err
		}
		v, err := parseU32(args[2])
		if err != nil {
			return err
		}
		s.bus.Write32(addr, v)
		if err := s.linkErr(); err != nil {
			return err
		}
		if *verbose {
			fmt.Printf("[%#08x] <- %#08x\n", addr, v)
		}
		return nil

	case "field":
		return s.runField(args[1:])

	case "gpio":
		return s.runGPIO(args[1:])

	case "ping":
		if s.client == nil {
			return fmt.Errorf("ping needs a live target")
		}
		if err := s.client.Ping(); err != nil {
			return err
		}
		fmt.Println("Target alive")
		return nil

	case "trace":
		if s.simBus == nil {
			return fmt.Errorf("trace is only available on the simulator")
		}
		for _, a := range s.simBus.Trace() {
			op := "R"
			if a.Op == sim.OpWrite {
				op = "W"
			}
			fmt.Printf("  %s [%#08x] %#08x\n", op, a.Addr, a.Val)
		}
		s.simBus.ResetTrace()
		return nil

	case "save":
		if s.simBus == nil {
			return fmt.Errorf("save is only available on the simulator")
		}
		if len(args) != 2 {
			return fmt.Errorf("usage: save FILE")
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := snapshot.Save(f, s.simBus); err != nil {
			return err
		}
		fmt.Printf("Saved snapshot to %s\n", args[1])
		return nil
	}
	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
}

// runField reads or writes a bit field in place: start and width describe
// the field, a trailing value makes it a write.
func (s *session) runField(args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return fmt.Errorf("usage: field ADDR START WIDTH [VALUE]")
	}
	addr, err := parseU32(args[0])
	if err != nil {
		return err
	}
	start, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("bad start bit %q", args[1])
	}
	width, err := strconv.ParseUint(args[2], 0, 8)
	if err != nil {
		return fmt.Errorf("bad width %q", args[2])
	}
	if start > 31 || width == 0 || start+width > 32 {
		return fmt.Errorf("field [%d +%d] does not fit a 32-bit register", start, width)
	}
	f := mmio.Field{Start: uint8(start), Width: uint8(width), Access: mmio.RW}

	if len(args) == 4 {
		v, err := parseU32(args[3])
		if err != nil {
			return err
		}
		mmio.WriteField(s.bus, addr, f, v)
		return s.linkErr()
	}
	v := mmio.ReadField(s.bus, addr, f)
	if err := s.linkErr(); err != nil {
		return err
	}
	fmt.Printf("[%#08x] bits %d+%d = %#x\n", addr, start, width, v)
	return nil
}

// runGPIO brings a pin up through the real driver path, so the command
// exercises clock gating, commit locks and all.
func (s *session) runGPIO(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: gpio out PIN 0|1  |  gpio in PIN")
	}
	pin, err := parsePin(args[1])
	if err != nil {
		return err
	}
	sc := tm4c.NewSysCtl(s.bus)

	switch args[0] {
	case "out":
		if len(args) != 3 {
			return fmt.Errorf("usage: gpio out PIN 0|1")
		}
		g, err := tm4c.NewGPIO(s.bus, sc, pin, tm4c.Output)
		if err != nil {
			return err
		}
		g.Write(args[2] != "0")
		if err := s.linkErr(); err != nil {
			return err
		}
		if *verbose {
			fmt.Printf("%s <- %s\n", pin, args[2])
		}
		return nil

	case "in":
		g, err := tm4c.NewGPIO(s.bus, sc, pin, tm4c.Input)
		if err != nil {
			return err
		}
		high := g.Read()
		if err := s.linkErr(); err != nil {
			return err
		}
		fmt.Printf("%s = %t\n", pin, high)
		return nil
	}
	return fmt.Errorf("unknown gpio subcommand: %s", args[0])
}

// linkErr surfaces a latched link failure after a bus access sequence.
func (s *session) linkErr() error {
	rb, ok := s.bus.(*link.RemoteBus)
	if !ok {
		return nil
	}
	if err := rb.Err(); err != nil {
		rb.Reset()
		return err
	}
	return nil
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return uint32(v), nil
}

func parsePin(s string) (tm4c.Pin, error) {
	s = strings.ToUpper(s)
	if len(s) != 3 || s[0] != 'P' || s[1] < 'A' || s[1] > 'F' || s[2] < '0' || s[2] > '7' {
		return 0, fmt.Errorf("bad pin %q (want e.g. PF1)", s)
	}
	pin := tm4c.Pin((s[1]-'A')*8 + (s[2] - '0'))
	if !pin.Valid() {
		return 0, fmt.Errorf("pin %s does not exist on this package", pin)
	}
	return pin, nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  read ADDR                      - Read a 32-bit register")
	fmt.Println("  write ADDR VALUE               - Write a 32-bit register")
	fmt.Println("  field ADDR START WIDTH [VALUE] - Read or write a bit field")
	fmt.Println("  gpio out PIN 0|1               - Drive a pin (brings it up first)")
	fmt.Println("  gpio in PIN                    - Read a pin (brings it up first)")
	fmt.Println("  ping                           - Check the target link")
	fmt.Println("  trace                          - Dump and clear the simulator access trace")
	fmt.Println("  save FILE                      - Save the simulator state as Intel HEX")
	fmt.Println("  quit/exit/q                    - Exit the program")
	fmt.Println()
}
