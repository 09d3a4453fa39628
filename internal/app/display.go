package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/publish"
)

// screen is the part of *ssd1306.Dev the update loop draws on.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplayData holds the latest IMU message for display
type DisplayData struct {
	mu      sync.RWMutex
	imu     imu.IMUMessage
	haveIMU bool
}

func (d *DisplayData) set(m imu.IMUMessage) {
	d.mu.Lock()
	d.imu = m
	d.haveIMU = true
	d.mu.Unlock()
}

func (d *DisplayData) snapshot() (imu.IMUMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.imu, d.haveIMU
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, "display", cfg.TopicIMU, cfg.MQTTQoS, func(m imu.IMUMessage, _ []byte) {
		data.set(m)
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		waitForSignal()
		cancel()
	}()

	log.Println("display: starting update loop")
	updateLoop(ctx, dev, data, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)
	return nil
}

// updateLoop redraws scr from data every interval until ctx is done.
func updateLoop(ctx context.Context, scr screen, data *DisplayData, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m, ok := data.snapshot()
			if err := scr.Draw(scr.Bounds(), renderIMU(m, ok), image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderIMU draws roll, pitch, yaw and the acceleration magnitude.
func renderIMU(m imu.IMUMessage, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	if !haveData {
		drawLine(drawer, 0, 26, "GX3 IMU")
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	pose := m.Orientation.Pose()
	drawLine(drawer, 0, 13, fmt.Sprintf("R: %6.1f", pose.Roll))
	drawLine(drawer, 0, 26, fmt.Sprintf("P: %6.1f", pose.Pitch))
	drawLine(drawer, 0, 39, fmt.Sprintf("Y: %6.1f", pose.Yaw))
	drawLine(drawer, 0, 52, fmt.Sprintf("|a| %5.2f m/s2", m.LinearAcceleration.Norm()))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()
	drawLine(drawer, 10, 26, "GX3 Bridge")
	drawLine(drawer, 5, 43, "Waiting for")
	drawLine(drawer, 25, 56, "samples")
	return img
}
