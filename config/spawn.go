package config

// Spawner is the narrow slice of kernel.Interface this package needs,
// the same dependency-inversion shape as desktopicons.MountLister and
// input.MenuRouter — config stays decoupled from the kernel package.
type Spawner interface {
	Spawn(path string, args []string) (pid uint32, err error)
}

// LaunchAutostart spawns every executable under dir and returns the
// resulting process ids, matching main.rs's launch_autostart() -> Vec<tid>
// return shape. A single program failing to spawn does not stop the rest —
// the session loop logs and continues, the same as a missing autostart
// entry should never block login.
func LaunchAutostart(s Spawner, dir string) ([]uint32, error) {
	paths, err := ListAutostart(dir)
	if err != nil {
		return nil, err
	}
	var pids []uint32
	for _, path := range paths {
		pid, err := s.Spawn(path, nil)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
