package app

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/publish"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeConsole(client, cfg, os.Stdout); err != nil {
		return err
	}

	waitForSignal()
	log.Println("console: shutting down")
	return nil
}

func subscribeConsole(client Subscriber, cfg *config.Config, out io.Writer) error {
	if err := subscribeJSON(client, "console", cfg.TopicIMU, cfg.MQTTQoS, func(m imu.IMUMessage, _ []byte) {
		fmt.Fprintln(out, formatIMU(m))
	}); err != nil {
		return err
	}
	return subscribeJSON(client, "console", cfg.TopicMag, cfg.MQTTQoS, func(m imu.MagneticFieldMessage, _ []byte) {
		fmt.Fprintln(out, formatMag(m))
	})
}

func formatIMU(m imu.IMUMessage) string {
	q := m.Orientation
	p := q.Pose()
	a, w := m.LinearAcceleration, m.AngularVelocity
	return fmt.Sprintf(
		"[IMU %6d] q=(%+.4f %+.4f %+.4f %+.4f)  ROLL=%7.2f PITCH=%7.2f YAW=%7.2f  a=(%+7.3f %+7.3f %+7.3f)  w=(%+7.3f %+7.3f %+7.3f)",
		m.Header.Seq, q.W, q.X, q.Y, q.Z, p.Roll, p.Pitch, p.Yaw,
		a.X, a.Y, a.Z, w.X, w.Y, w.Z,
	)
}

func formatMag(m imu.MagneticFieldMessage) string {
	b := m.MagneticField
	return fmt.Sprintf("[MAG %6d] b=(%+.4f %+.4f %+.4f) |B|=%.4f",
		m.Header.Seq, b.X, b.Y, b.Z, b.Norm())
}
