package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagConfig    string
	flagInput     string
	flagDisplay   string
	flagAddress   string
	flagFB        string
	flagRecord    bool
	flagAllocator string
	flagLogLevel  string
	flagHelp      bool
	flagVersion   bool
)

func init() {
	flag.StringVarP(&flagConfig, "config", "c", "", "YAML configuration file")
	flag.StringVarP(&flagInput, "input", "i", "", "Camera source spec")
	flag.StringVarP(&flagDisplay, "display", "d", "", "Preview display: ws, fbdev or none")
	flag.StringVarP(&flagAddress, "address", "a", "", "Listen address for the ws display")
	flag.StringVarP(&flagFB, "framebuffer", "", "", "Framebuffer device for the fbdev display")
	flag.BoolVarP(&flagRecord, "record", "r", false, "Receive video frames while previewing")
	flag.StringVarP(&flagAllocator, "allocator", "", "", "Video frame memory: heap or mmap")
	flag.StringVarP(&flagLogLevel, "log-level", "l", "", "Logging directives, e.g. debug,surface=trace")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Camera preview bridge

Usage: camerad [OPTION]...

Camera:
  -i, --input=SPEC       Camera source (default: pattern:640x480)
                           v4l2:DEVICE[:WxH][:FORMAT][:FPS][:hflip][:vflip]
                           pattern:WxH[:FORMAT][:FPS][:bars|gray][:overlay]
  -r, --record           Receive video frames while previewing
      --allocator=KIND   Video frame memory, heap or mmap (default: heap)

Display:
  -d, --display=KIND     ws, fbdev or none (default: ws)
  -a, --address=ADDR     Listen address for ws (default: :8000)
      --framebuffer=DEV  Device for fbdev (default: /dev/fb0)

Miscellaneous:
  -c, --config=FILE      Read settings from a YAML file; options override it
  -l, --log-level=DIRS   Logging directives, as in LOGLEVEL
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits`

// Help information is printed and program exits
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	r.Printf("ca")
	y.Printf("me")
	b.Printf("ra")
	y.Println("d")
	fmt.Println()
	fmt.Println(helpString)
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("camerad", GitRevisionId)
}
