package util

import (
	"fmt"
	"strconv"
)

func makeCRC16Table(poly uint16) [256]uint16 {
	var tab [256]uint16
	for i := 0; i < 256; i++ {
		var crc uint16 = uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

var crc16Tab = makeCRC16Table(0x1021)

func crc16CCITT(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		idx := byte((crc >> 8) ^ uint16(b)) // 高字节异或数据
		crc = (crc << 8) ^ crc16Tab[idx]
	}
	return crc
}

func GetCrc16(val int64) uint16 {
	return crc16CCITT([]byte(strconv.FormatInt(val, 10))) % 16384
}

// ShortCode 生成信号短码，用于通知文案和口头转述（如 "S-0C3F"）
func ShortCode(id int64) string {
	return fmt.Sprintf("S-%04X", GetCrc16(id))
}
