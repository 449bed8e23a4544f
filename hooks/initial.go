package hooks

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/colors"
	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/cmpt-474-edu-monitor/sdk/internal/core/run_manager"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/app"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/logs"
)

var Compositor *config.Compositor = config.NewCompositor()

// runDir is created in post-init and removed by the fallback.
var runDir *run_manager.RunDir

// Warnings that can be listed under disable_warnings.
const (
	WarnNonStdTmpDir   = "--WNonStdTmpDir"
	WarnDefaultSecret  = "--WDefaultSecret"
	WarnNoNamespaces   = "--WNoNamespaces"
	WarnInsecureListen = "--WInsecureListen"
)

func initialHooks() []app.InitHook {
	return []app.InitHook{
		Init0Hook, Init1Hook, Init2Hook,
		Init3Hook, Init4Hook, Init5Hook,
		Init6Hook,
	}
}

func Init0Hook(cs *corestate.CoreState, x *app.AppX) error {
	x.Config = Compositor
	x.Log.SetOutput(os.Stdout)
	x.Log.SetPrefix(colors.SetBrightBlack(fmt.Sprintf("(%s) ", cs.Stage)))
	x.Log.SetFlags(log.Ldate | log.Ltime)
	return nil
}

// First stage: pre-init
func Init1Hook(cs *corestate.CoreState, x *app.AppX) error {
	*cs = *corestate.NewCorestate(&corestate.CoreState{
		UUID32DirName:      "uuid",
		NodeBinName:        filepath.Base(os.Args[0]),
		NodeVersion:        config.NodeVersion,
		MetaDir:            config.MetaDir,
		Stage:              corestate.StagePreInit,
		Role:               cs.Role,
		StartTimestampUnix: time.Now().Unix(),
	})
	return nil
}

func Init2Hook(cs *corestate.CoreState, x *app.AppX) error {
	x.Log.SetPrefix(colors.SetBlue(fmt.Sprintf("(%s) ", cs.Stage)))

	if err := x.Config.LoadEnv(); err != nil {
		return fmt.Errorf("env load error: %w", err)
	}
	cs.NodePath = *x.Config.Env.NodePath

	if x.Config.CMDLine != nil {
		if cfgPath := x.Config.CMDLine.Node.ConfigPath; cfgPath != "" {
			x.Config.Env.ConfigPath = &cfgPath
		}
	}
	if err := x.Config.LoadConf(*x.Config.Env.ConfigPath); err != nil {
		return fmt.Errorf("conf load error: %w", err)
	}
	if x.Config.CMDLine != nil && x.Config.CMDLine.Node.Debug {
		level := "debug"
		x.Config.Conf.Log.Level = &level
	}
	return nil
}

func Init3Hook(cs *corestate.CoreState, x *app.AppX) error {
	uuid32, err := corestate.LoadOrCreateNodeUUID(filepath.Join(cs.NodePath, cs.MetaDir, cs.UUID32DirName))
	if err != nil {
		return fmt.Errorf("uuid load error: %w", err)
	}
	cs.UUID32 = uuid32
	x.Log.Printf("Node uuid is %s", cs.UUID32)
	return nil
}

// post-init stage
func Init4Hook(cs *corestate.CoreState, x *app.AppX) error {
	cs.Stage = corestate.StagePostInit
	x.Log.SetPrefix(colors.SetYellow(fmt.Sprintf("(%s) ", cs.Stage)))

	rd, err := run_manager.Create(cs.UUID32)
	if err != nil {
		return fmt.Errorf("unable to continue node operation: %w", err)
	}
	runDir = rd
	cs.RunDir = rd.Path()

	return rd.WriteLock(&run_manager.Lock{
		PID:       os.Getpid(),
		Version:   cs.NodeVersion,
		UUID:      cs.UUID32,
		Role:      string(cs.Role),
		StartedAt: time.Unix(cs.StartTimestampUnix, 0),
	})
}

func warn(x *app.AppX, code, msg string) {
	if slices.Contains(*x.Config.Conf.DisableWarnings, code) {
		return
	}
	x.Log.Printf("%s: %s", colors.PrintWarn(), msg)
}

func Init5Hook(cs *corestate.CoreState, x *app.AppX) error {
	if os.TempDir() != "/tmp" {
		warn(x, WarnNonStdTmpDir, "Non-standard value specified for temporary directory")
	}
	if _, isDefault := x.Config.SessionSecret(); isDefault {
		warn(x, WarnDefaultSecret, "No session secret configured, sessions are sealed with the default password")
	}
	if cs.Role == corestate.RoleGateway && len(*x.Config.Conf.Gateway.Namespaces) == 0 {
		warn(x, WarnNoNamespaces, "No namespaces configured, every call will be answered with method not found")
	}
	if !*x.Config.Conf.TLS.TlsEnabled && *x.Config.Conf.HTTPServer.Address != "127.0.0.1" {
		warn(x, WarnInsecureListen, "Serving plain HTTP on a non-loopback address")
	}
	if strings.Contains(*x.Config.Conf.Log.OutPath, `%tmp%`) {
		replaced := strings.ReplaceAll(*x.Config.Conf.Log.OutPath, "%tmp%", filepath.Clean(cs.RunDir))
		x.Config.Conf.Log.OutPath = &replaced
	}
	return nil
}

func Init6Hook(cs *corestate.CoreState, x *app.AppX) error {
	cs.Stage = corestate.StageReady
	x.Log.SetPrefix(colors.SetGreen(fmt.Sprintf("(%s) ", cs.Stage)))

	newSlog, err := logs.SetupLogger(x.Config.Conf.Log)
	if err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	x.SLog = newSlog.With("node", *x.Config.Conf.Node.Name, "role", string(cs.Role))

	if *x.Config.Conf.Node.ShowConfig {
		fmt.Println("Configuration:")
		x.Config.Print(os.Stdout, x.Config.Conf)
	}
	return nil
}
