// Command slam-pcap-replay drives a pipeline.Pipeline from a captured
// PCAP file of UDP LiDAR sweep packets, printing one line per sweep
// report and optionally persisting the resulting trajectory.
//
//go:build pcap
// +build pcap

package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/uuid"

	"github.com/banshee-data/lidar-slam/internal/config"
	"github.com/banshee-data/lidar-slam/internal/monitoring"
	"github.com/banshee-data/lidar-slam/internal/slam/ingest"
	"github.com/banshee-data/lidar-slam/internal/slam/pipeline"
	"github.com/banshee-data/lidar-slam/internal/store"
)

// recordSize is the wire size of one point record within a UDP
// payload: X,Y,Z,Intensity (float64x4), ScanLineID (int32), AzimuthRad
// (float64), TimestampNs (int64).
const recordSize = 8*4 + 4 + 8 + 8

func decodeRecord(b []byte) ingest.RawPoint {
	x := math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
	z := math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))
	intensity := math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))
	scanLineID := int32(binary.LittleEndian.Uint32(b[32:36]))
	azimuth := math.Float64frombits(binary.LittleEndian.Uint64(b[36:44]))
	tsNs := int64(binary.LittleEndian.Uint64(b[44:52]))
	return ingest.RawPoint{
		X: x, Y: y, Z: z, Intensity: intensity,
		ScanLineID:  int(scanLineID),
		AzimuthRad:  azimuth,
		TimestampNs: tsNs,
	}
}

func decodePayload(payload []byte) []ingest.RawPoint {
	n := len(payload) / recordSize
	points := make([]ingest.RawPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, decodeRecord(payload[i*recordSize:(i+1)*recordSize]))
	}
	return points
}

func main() {
	pcapFile := flag.String("pcap", "", "path to a PCAP file of captured sweep packets")
	udpPort := flag.Int("udp-port", 2368, "UDP port carrying sweep packets")
	dbPath := flag.String("db", "", "optional SQLite path to persist the resulting trajectory")
	migrationsDir := flag.String("migrations", "internal/store/migrations", "migrations directory for -db")
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("slam-pcap-replay: -pcap is required")
	}

	pl, err := pipeline.New(config.DefaultTuningConfig())
	if err != nil {
		log.Fatalf("slam-pcap-replay: pipeline.New: %v", err)
	}

	var db *store.Store
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("slam-pcap-replay: store.Open: %v", err)
		}
		defer db.Close()
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("slam-pcap-replay: MigrateUp: %v", err)
		}
	}

	handle, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		log.Fatalf("slam-pcap-replay: open pcap %s: %v", *pcapFile, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", *udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		log.Fatalf("slam-pcap-replay: set BPF filter %q: %v", filter, err)
	}

	runID := uuid.New().String()
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	seq := 0
	for packet := range packetSource.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) < recordSize {
			continue
		}

		points := decodePayload(udp.Payload)
		captureNs := packet.Metadata().Timestamp.UnixNano()
		frameID := fmt.Sprintf("%s-%d", runID, seq)
		report, err := pl.AddFrame(points, captureNs, captureNs+int64(100*time.Millisecond), frameID)
		if err != nil {
			monitoring.Logf("slam-pcap-replay: AddFrame(%d): %v", seq, err)
			continue
		}

		v := report.Tworld.Vector6()
		monitoring.Logf("frame=%s skip=%q edges=%d planars=%d tworld=(%.3f,%.3f,%.3f,%.3f,%.3f,%.3f)",
			report.FrameID, report.SkipReason, report.NumEdgesSelected, report.NumPlanarsSelected,
			v[0], v[1], v[2], v[3], v[4], v[5])

		if db != nil {
			if err := db.SaveReport(seq, report); err != nil {
				monitoring.Logf("slam-pcap-replay: SaveReport(%d): %v", seq, err)
			}
		}
		seq++
	}
}
