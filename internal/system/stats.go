package system

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryStats снимок памяти для отчёта о производительности.
type MemoryStats struct {
	RSS        uint64 // Резидентная память процесса, байты
	HostTotal  uint64
	HostUsedPc float64
}

func ReadMemoryStats() (MemoryStats, error) {
	var st MemoryStats

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return st, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return st, err
	}
	st.RSS = info.RSS

	vm, err := mem.VirtualMemory()
	if err != nil {
		return st, err
	}
	st.HostTotal = vm.Total
	st.HostUsedPc = vm.UsedPercent
	return st, nil
}

// FrameBudget оценивает, сколько байт займут загруженные текстуры, и
// сравнивает с доступной памятью хоста.
func FrameBudget(textureBytes uint64) (fits bool, available uint64) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return true, 0
	}
	return textureBytes < vm.Available, vm.Available
}
