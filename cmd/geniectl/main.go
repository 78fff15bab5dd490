// geniectl talks to a running pixelgenie over its control websocket.
//
//	geniectl [-url ws://host:8765] query
//	geniectl [-url ws://host:8765] set <effect> <param> <value>
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelgenie/internal/control"
	"github.com/coreman2200/pixelgenie/internal/effect"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8765", "control websocket URL")
		timeout = flag.Duration("timeout", 3*time.Second, "dial and reply timeout")
		verbose = flag.Bool("v", false, "log traffic")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] query | set <effect> <param> <value>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	msg, err := command(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	d := websocket.Dialer{HandshakeTimeout: *timeout}
	conn, _, err := d.Dial(*url, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("dial")
	}
	defer conn.Close()

	if err := send(conn, msg); err != nil {
		log.Fatal().Err(err).Msg("send")
	}
	// Updates are only answered on failure, so follow with a query and
	// report whatever comes back first.
	if string(msg) != control.QueryCommand {
		if err := send(conn, []byte(control.QueryCommand)); err != nil {
			log.Fatal().Err(err).Msg("send")
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(*timeout))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		log.Fatal().Err(err).Msg("read")
	}
	log.Debug().Int("bytes", len(reply)).Msg("<")

	if !json.Valid(reply) {
		fmt.Fprintln(os.Stderr, string(reply))
		os.Exit(1)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, reply, "", "    "); err != nil {
		log.Fatal().Err(err).Msg("format reply")
	}
	fmt.Println(out.String())
}

func send(conn *websocket.Conn, msg []byte) error {
	log.Debug().Bytes("msg", msg).Msg(">")
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// command builds the wire message for args.
func command(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command")
	}
	switch strings.ToLower(args[0]) {
	case "query":
		if len(args) != 1 {
			return nil, fmt.Errorf("query takes no arguments")
		}
		return []byte(control.QueryCommand), nil
	case "set":
		if len(args) != 4 {
			return nil, fmt.Errorf("set needs <effect> <param> <value>")
		}
		v, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", args[3], err)
		}
		p := effect.Partial{args[1]: effect.EffectPatch{
			Parameters: map[string]effect.ParameterPatch{args[2]: {Value: &v}},
		}}
		return json.Marshal(p)
	default:
		return nil, fmt.Errorf("unknown command %q", args[0])
	}
}
