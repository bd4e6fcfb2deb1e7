// Command isotpbridge bridges a Linux SocketCAN interface to the isotp
// transport: it decodes incoming CAN frames into reassembled messages and
// logs them, and lets an operator inject one outgoing message per
// invocation with --send.
package main

import (
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	isotp "github.com/rob-gra/go-isotp"
	"github.com/rob-gra/go-isotp/platform/socketcan"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "path to a bridge config YAML file")
		channel    = flag.StringP("channel", "i", "", "CAN interface name, overrides config")
		sendHex    = flag.String("send", "", "hex-encoded message to send once at startup")
		sendTarget = flag.Uint32("send-rx-id", 0, "rx_id of the peer to send to (Normal11/29 modes)")
		verbose    = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	cfg, err := loadBridgeConfig(*configPath)
	if err != nil {
		log.Fatal("loading config", "err", err)
	}
	if *channel != "" {
		cfg.Channel = *channel
	}
	if *verbose {
		cfg.Verbose = true
	}
	if cfg.Channel == "" {
		log.Fatal("no CAN channel given; set --channel or channel: in the config file")
	}

	transportConfig, err := cfg.transportConfig()
	if err != nil {
		log.Fatal("building transport config", "err", err)
	}

	conn, err := socketcan.Dial(cfg.Channel)
	if err != nil {
		log.Fatal("dialing CAN interface", "channel", cfg.Channel, "err", err)
	}
	defer conn.Close()

	epoch := time.Now()
	now := func() uint32 { return uint32(time.Since(epoch).Milliseconds()) }

	callback := isotp.Callback{
		Indication: func(addr isotp.Address, message []byte, result isotp.Result) {
			if result == isotp.ResultOK {
				log.Info("received", "peer", addr, "bytes", len(message), "data", hex.EncodeToString(message))
			} else {
				log.Warn("reception failed", "peer", addr, "result", result)
			}
		},
		Confirm: func(addr isotp.Address, result isotp.Result) {
			log.Info("send confirmed", "peer", addr, "result", result)
		},
	}

	errorHandler := isotp.ErrorHandler(func(status isotp.Status, err error) {
		log.Error("transport error", "status", status, "err", err)
	})

	tp, err := isotp.NewTransport(transportConfig, conn.Send, now, callback, errorHandler)
	if err != nil {
		log.Fatal("constructing transport", "err", err)
	}
	tp.Log.LogMode(cfg.Verbose)

	if *sendHex != "" {
		message, err := hex.DecodeString(*sendHex)
		if err != nil {
			log.Fatal("decoding -send payload", "err", err)
		}
		addr := transportConfig.MyAddress
		addr.TxID = *sendTarget
		if err := tp.Send(addr, message); err != nil {
			log.Fatal("queueing send", "err", err)
		}
	}

	frames := make(chan *isotp.CANFrame, 16)
	go func() {
		for {
			f, err := conn.Receive()
			if err != nil {
				log.Error("reading CAN frame", "err", err)
				close(frames)
				return
			}
			frames <- f
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return
			}
			tp.OnFrame(f)
		case <-ticker.C:
			tp.Tick()
		case <-sigs:
			return
		}
	}
}
