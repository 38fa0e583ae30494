package main

import (
	"github.com/tigrawap/goxattr/utils"
)

// PayloadGetter hands out attribute values for writes. All getters slice one
// shared random buffer; the attribute layer copies it into the kernel.
type PayloadGetter interface {
	Get() []byte
}

var requestersConfig struct {
	fullData      []byte
	payloadGetter PayloadGetter
}

type fullPayload struct {
	data []byte
}

func (p *fullPayload) Get() []byte {
	return p.data
}

func newFullPayload(data []byte) *fullPayload {
	return &fullPayload{data}
}

// randomPayload draws lengths uniformly from [min, len(data)].
type randomPayload struct {
	data []byte
	min  int64
	max  int64
}

func (p *randomPayload) Get() []byte {
	return p.data[0:p.GetLength()]
}

func (p *randomPayload) GetLength() int64 {
	if p.max == p.min {
		return p.max
	}
	return p.min + utils.Int63n(p.max-p.min+1)
}

func newRandomPayload(data []byte, min int64) *randomPayload {
	max := int64(len(data))
	return &randomPayload{data, min, max}
}

// fairRandomPayload draws lengths so each size bucket writes about the same
// number of bytes overall.
type fairRandomPayload struct {
	data   []byte
	min    int64
	max    int64
	roller *utils.WeightedRoller
}

func (p *fairRandomPayload) Get() []byte {
	return p.data[0:p.GetLength()]
}

func (p *fairRandomPayload) GetLength() int64 {
	return p.roller.Roll()
}

func newFairPayload(data []byte, min int64, buckets int) *fairRandomPayload {
	max := int64(len(data))
	roller := utils.NewWeightedRoller(min, max, int64(buckets))
	return &fairRandomPayload{
		data:   data,
		min:    min,
		max:    max,
		roller: roller,
	}
}

func setRandomData() {
	dataSize := config.valueSize
	if config.maxValueSize != 0 {
		dataSize = config.maxValueSize
	}
	fullData := make([]byte, dataSize)
	utils.Read(fullData)
	requestersConfig.fullData = fullData
}

func setPayloadGetter() {
	fullData := requestersConfig.fullData
	if config.maxValueSize == 0 {
		requestersConfig.payloadGetter = newFullPayload(fullData)
	} else {
		if config.randomFairDistribution {
			requestersConfig.payloadGetter = newFairPayload(fullData, int64(config.minValueSize), config.randomFairBuckets)
		} else {
			requestersConfig.payloadGetter = newRandomPayload(fullData, int64(config.minValueSize))
		}
	}
}
