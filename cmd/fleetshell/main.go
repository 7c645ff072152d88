// Command fleetshell is a read-only operator REPL against a running
// fleetadapter's diagnostics endpoint: inspect robot state. The
// interrupt command only prints the request it would send; it is not
// delivered anywhere. Supplements the spec's silence on operability
// tooling (SPEC_FULL.md §4.8).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

func main() {
	addr := "http://localhost:8080"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	rl, err := readline.New("fleet> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	client := &shellClient{base: addr}
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := dispatch(client, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func dispatch(client *shellClient, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "robots":
		return client.printRobots()
	case "robot":
		if len(fields) < 2 {
			return fmt.Errorf("usage: robot <name>")
		}
		return client.printRobot(fields[1])
	case "closed-lanes":
		return client.printClosedLanes()
	case "interrupt":
		if len(fields) < 4 {
			return fmt.Errorf("usage: interrupt <robot> <id> <resume|start> [labels...]")
		}
		return client.interrupt(fields[1], fields[2], fields[3], fields[4:])
	default:
		return fmt.Errorf("unknown command %q (try: robots, robot <name>, closed-lanes, interrupt)", fields[0])
	}
}

// shellClient is the HTTP client against the diagnostics surface
// exposed by cmd/fleetadapter's go-chi router.
type shellClient struct {
	base string
	http http.Client
}

func (c *shellClient) printRobots() error {
	var robots []map[string]interface{}
	if err := c.getJSON("/robots", &robots); err != nil {
		return err
	}
	for _, r := range robots {
		fmt.Printf("%v\t%v\n", r["Name"], r["State"])
	}
	return nil
}

func (c *shellClient) printRobot(name string) error {
	var robots []map[string]interface{}
	if err := c.getJSON("/robots", &robots); err != nil {
		return err
	}
	for _, r := range robots {
		if r["Name"] == name {
			enc, _ := json.MarshalIndent(r, "", "  ")
			fmt.Println(string(enc))
			return nil
		}
	}
	return fmt.Errorf("unknown robot %q", name)
}

func (c *shellClient) printClosedLanes() error {
	fmt.Println("closed-lanes: not exposed by this adapter build")
	return nil
}

func (c *shellClient) interrupt(robot, id, kind string, labels []string) error {
	fmt.Printf("would send interrupt %s/%s type=%s labels=%v (manual dispatch not wired to a transport in this build)\n", robot, id, kind, labels)
	return nil
}

func (c *shellClient) getJSON(path string, out interface{}) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
