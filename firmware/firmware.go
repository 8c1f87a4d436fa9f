// Package firmware assembles the companion MCU's components into one
// running system: bus, board config, resource registry, protocol
// engine (ring, synchronizer, router), scheduler, LED engine, display
// FSM, power reporter/controller, button input and the debug channel,
// behind one entry point that main.go calls into.
package firmware

import (
	"context"
	"os"
	"sync"
	"time"

	"companion-mcu/bus"
	"companion-mcu/button"
	"companion-mcu/debug"
	"companion-mcu/display"
	"companion-mcu/led"
	"companion-mcu/power"
	"companion-mcu/protocol"
	"companion-mcu/resource"
	"companion-mcu/scheduler"
	"companion-mcu/services/bridge"
	"companion-mcu/services/config"
	"companion-mcu/types"
	"companion-mcu/x/fmtx"
	"companion-mcu/x/shmring"
)

// outboundRingBytes sizes the outbound byte ring in whole 4-byte
// frames; it must stay a power of two per shmring's contract.
const outboundRingBytes = 32 * protocol.FrameSize

// UART is the minimal serial transport the protocol engine needs. Real
// hardware satisfies it with *uartx.UART (via platform's rp2040
// adapter); host builds satisfy it with a stdin/stdout stand-in.
type UART interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// USBSwitch drives the usb_switch line that re-routes the USB data
// path between the Host SoC and the MCU's bootloader port.
type USBSwitch interface {
	Toggle()
}

// Deps are the platform-specific pieces firmware.Run needs injected;
// every field has a nil-safe default inside the subsystem it feeds,
// except UARTDial which is required. UARTDial is invoked through
// bridge.Dial (retried with backoff) rather than handed over already
// open, so a cold-booting UART port doesn't need to be ready the
// instant firmware.Run starts.
type Deps struct {
	UARTDial     bridge.DialFunc
	ButtonPins   button.Pins
	DisplaySPI   display.SPI
	DisplayMux   display.Mux
	DisplayPower display.Power
	PowerSensor  power.Sensor
	PMIC         power.PMIC
	USBSwitch    USBSwitch
	BootFrames   [][]byte
}

// boardOwner is the resource-registry owner name for the lines this
// package claims directly (not the ones display.FSM claims itself).
const boardOwner = "firmware"

// claimBoardLines claims every physical line firmware owns outright.
// A double-claim is a programming error and panics at boot.
func claimBoardLines(reg *resource.Registry) {
	lines := []string{
		resource.LineButtonUp,
		resource.LineButtonDown,
		resource.LineButtonSel,
		resource.LineButtonPower,
		resource.LinePMICEnable,
		resource.LineUSBSwitch,
		resource.BusFuelGaugeI2C,
		resource.BusLEDStrip,
	}
	for _, l := range lines {
		if err := reg.Claim(l, boardOwner); err != nil {
			panic("firmware: line " + l + " already claimed: " + err.Error())
		}
	}
}

// resolveBoardConfig starts the config service against connection conn
// and waits (briefly) for the retained BoardConfig it publishes,
// falling back to config.DefaultBoardConfig if nothing arrives in
// time -- booting on defaults beats wedging on a bus hiccup.
func resolveBoardConfig(ctx context.Context, conn *bus.Connection) types.BoardConfig {
	sub := conn.Subscribe(config.BoardTopic)
	defer conn.Unsubscribe(sub)

	deviceCtx := context.WithValue(ctx, config.CtxDeviceKey, config.DefaultBoard)
	config.NewConfigService().Start(deviceCtx, conn)

	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case m := <-sub.Channel():
			if cfg, ok := m.Payload.(types.BoardConfig); ok {
				return cfg
			}
		case <-timeout:
			return config.DefaultBoardConfig()
		}
	}
}

// Run wires every subsystem together and blocks until ctx is
// cancelled. It never returns nil-deref on a missing optional
// dependency: button/display/power gracefully run with stub behavior
// when their hardware handles are nil, so the same wiring boots on a
// desk as on a panel.
func Run(ctx context.Context, deps Deps) {
	b := bus.NewBus(32)
	conn := b.NewConnection("firmware")

	board := resolveBoardConfig(ctx, conn)
	fmtx.Printf("[firmware] board=%s led_count=%d baud=%d\n", board.Board, board.LEDCount, board.UARTBaud)

	reg := resource.NewRegistry()
	claimBoardLines(reg)

	// outboundRing is the single logical UART transmitter's buffer:
	// every task that wants to send a frame calls emit, which
	// serializes writers under outboundMu so the ring, built for
	// exactly one producer, sees exactly one. writeLoop is the ring's
	// one consumer.
	outboundRing := shmring.New(outboundRingBytes)
	var outboundMu sync.Mutex
	emit := func(frame [protocol.FrameSize]byte) {
		outboundMu.Lock()
		defer outboundMu.Unlock()
		if outboundRing.Space() < protocol.FrameSize {
			// Outbound is full: the Host is not draining fast enough.
			// Drop rather than block a scheduler task forever.
			return
		}
		outboundRing.TryWriteFrom(frame[:])
	}

	dbg := debug.New(types.LevelInfo, emit)

	ledEngine := led.New(func(a led.Ack) {
		emit(protocol.EncodeLEDAck(a.LEDID, a.Execute, a.Data0, a.Data1))
	})

	bootFrames := deps.BootFrames
	if bootFrames == nil {
		bootFrames = [][]byte{make([]byte, display.FrameBytes), make([]byte, display.FrameBytes)}
	}
	spi := deps.DisplaySPI
	if spi == nil {
		spi = noopSPI{}
	}
	mux := deps.DisplayMux
	if mux == nil {
		mux = noopMux{}
	}
	disp := display.New(spi, mux, deps.DisplayPower, reg, dbg, bootFrames, func() {
		emit(protocol.Encode(types.KindDisplay, types.DisplayStatus, 0xFF, 0))
	})
	go disp.Run()

	sensor := deps.PowerSensor
	if sensor == nil {
		sensor = unreachableSensor{}
	}
	reporter := power.New(sensor, nil, 50*time.Millisecond)
	reporter.Debug = dbg
	powerCtl := power.NewController(deps.PMIC)

	sched := scheduler.New()
	go sched.RunCore1(func() { time.Sleep(time.Millisecond) })

	wd := scheduler.NewWatchdog(500*time.Millisecond, func() {
		ledEngine.SetDiag(led.RGB888{R: 255})
		dbg.Code(types.CategorySYS, 1, 0)
		fmtx.Printf("[firmware] watchdog starved; resetting\n")
		os.Exit(1)
	})
	go wd.Run()
	defer wd.Stop()

	go sched.RunCore0(func() {
		wd.FeedCore0()
		time.Sleep(time.Millisecond)
	})
	defer sched.Stop()

	router := protocol.New(sched, ledEngine, disp, reporter, powerCtl, dbg, emit)
	router.ResetFn = func() { fmtx.Printf("[firmware] reset requested over SYSTEM channel\n") }

	if deps.ButtonPins != nil {
		btn := button.New(deps.ButtonPins, func(mask uint8) {
			emit(protocol.EncodeButton(mask))
		})
		btn.OnLongPress(func() { dbg.Code(types.CategoryBTN, 1, 0) })
		btn.OnUSBMuxHold(func() {
			dbg.Code(types.CategoryBTN, 2, 0)
			if deps.USBSwitch != nil {
				deps.USBSwitch.Toggle()
			}
		})
		stop := make(chan struct{})
		go btn.Run(stop)
		go func() {
			<-ctx.Done()
			close(stop)
		}()
	}

	uartCfg := bridge.UARTConfig{Baud: board.UARTBaud, TxPin: board.UARTTxPin, RxPin: board.UARTRxPin}
	link, err := bridge.Dial(ctx, conn, deps.UARTDial, uartCfg)
	if err != nil {
		fmtx.Printf("[firmware] UART dial aborted: %v\n", err)
		return
	}
	defer link.Close()

	// Link is up and every subsystem is wired: diagnostic pixel goes
	// dim green until something overrides it (watchdog paints it red).
	ledEngine.SetDiag(led.RGB888{G: 32})

	go writeLoop(ctx, link, outboundRing)
	readLoop(ctx, link, router, dbg, wd)
}

// writeLoop is the single writer task: it is the only goroutine that
// ever calls UART.Write, so frames are never interleaved. It is
// outboundRing's one consumer, waking on Readable() instead of
// polling.
func writeLoop(ctx context.Context, uart UART, ring *shmring.Ring) {
	frame := make([]byte, protocol.FrameSize)
	for {
		if ring.Available() < protocol.FrameSize {
			select {
			case <-ctx.Done():
				return
			case <-ring.Readable():
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		if n := ring.TryReadInto(frame); n < protocol.FrameSize {
			continue
		}
		if uart == nil {
			continue
		}
		if _, err := uart.Write(frame); err != nil {
			fmtx.Printf("[firmware] uart write error: %v\n", err)
		}
	}
}

// readLoop is the Core-1 service loop: it drains received byte chunks
// into the receive ring, pulls decoded packets through the frame
// synchronizer, and hands each one to the router. The blocking
// UART.Read itself runs in a separate receiver goroutine (the ISR
// stand-in), so this loop keeps feeding the watchdog even when the
// Host sends nothing -- an idle link is not starvation. The ring's
// producer and consumer are both this loop, preserving its
// single-producer/single-consumer contract.
func readLoop(ctx context.Context, uart UART, router *protocol.Router, dbg *debug.Channel, wd *scheduler.Watchdog) {
	ring := protocol.NewRing()
	synchronizer := protocol.NewSynchronizer(ring)
	start := time.Now()

	rxCh := make(chan []byte, 8)
	go receive(ctx, uart, rxCh)

	idle := time.NewTicker(100 * time.Millisecond)
	defer idle.Stop()

	for {
		wd.FeedCore1()
		select {
		case <-ctx.Done():
			return
		case chunk := <-rxCh:
			if !ring.Push(chunk) {
				dbg.Code(types.CategoryUART, 2, 0)
			}
		case <-idle.C:
			continue
		}
		nowMs := uint32(time.Since(start).Milliseconds())
		for {
			pkt, ok := synchronizer.Next(nowMs)
			if !ok {
				break
			}
			router.Dispatch(pkt)
		}
	}
}

// receive blocks on UART.Read and forwards each received chunk to the
// Core-1 service loop, standing in for the UART receive interrupt.
func receive(ctx context.Context, uart UART, rxCh chan<- []byte) {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if uart == nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		n, err := uart.Read(buf)
		if err != nil {
			time.Sleep(time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case rxCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// unreachableSensor is the fallback power.Sensor used when no real
// fuel-gauge handle is available, so the reporter always takes the
// deterministic synthetic path instead of panicking on a nil Sensor.
type unreachableSensor struct{}

func (unreachableSensor) Ibat_mA() (int32, error)           { return 0, errNoSensor{} }
func (unreachableSensor) Battery_mVPack() (int32, error)    { return 0, errNoSensor{} }
func (unreachableSensor) Battery_mVPerCell() (int32, error) { return 0, errNoSensor{} }
func (unreachableSensor) Die_mC() (int32, error)            { return 0, errNoSensor{} }

type errNoSensor struct{}

func (errNoSensor) Error() string { return "power: no sensor attached" }

// noopSPI/noopMux stand in for display hardware that was not injected
// (host builds without a real panel), so the boot animation loop still
// runs its claim/release lifecycle against the resource registry.
type noopSPI struct{}

func (noopSPI) Init() error             { return nil }
func (noopSPI) Deinit()                 {}
func (noopSPI) WriteFrame([]byte) error { return nil }

type noopMux struct{}

func (noopMux) Set(bool) {}
