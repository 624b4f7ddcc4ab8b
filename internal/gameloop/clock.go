package gameloop

import "time"

func wallClockMillis() int64 { return time.Now().UnixMilli() }
