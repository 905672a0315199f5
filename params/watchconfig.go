package params

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/fsnotify/fsnotify"
)

// gatewayFileContent shape of the watched gateway config file
type gatewayFileContent struct {
	Gateways map[string][]string
}

// WatchGatewayConfig watch and update gateway config
func WatchGatewayConfig() {
	if GatewayConfigFile == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("fsnotify: new watcher failed", "err", err)
		return
	}

	go startWatcher(watcher)

	file := filepath.Clean(GatewayConfigFile)
	dir := filepath.Dir(file)
	err = watcher.Add(dir)
	if err != nil {
		log.Error("fsnotify: add gateway path failed", "err", err)
		return
	}
	log.Infof("fsnotify: start to watch gateway config file %v", file)
}

func startWatcher(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok { // Channel was closed
				log.Error("fsnotify: channel was closed")
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(GatewayConfigFile) {
				continue
			}
			log.Trace("fsnotify: watcher event", "file", ev.Name, "op", ev.Op)
			if ev.Has(fsnotify.Write) {
				err := updateGateways(ev.Name)
				if err == nil {
					log.Info("fsnotify: update gateways success")
				} else {
					log.Warn("fsnotify: update gateways failed", "err", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok { // Channel was closed
				log.Error("fsnotify: channel was closed")
				return
			}
			log.Warn("fsnotify: watcher error", "err", err)
		}
	}
}

func updateGateways(fileName string) error {
	content := &gatewayFileContent{}
	if _, err := toml.DecodeFile(fileName, content); err != nil {
		return err
	}
	for networkKey, urls := range content.Gateways {
		if !IsKnownNetwork(networkKey) {
			log.Warn("fsnotify: ignore unknown network in gateway config", "network", networkKey)
			continue
		}
		if len(urls) == 0 {
			log.Warn("fsnotify: ignore empty gateway urls", "network", networkKey)
			continue
		}
		SetGatewayURLs(networkKey, urls)
	}
	return nil
}
