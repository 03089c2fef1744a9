package protocol

// MaxChunkData is the raw data capacity of one transfer chunk.
const MaxChunkData = MaxPayload

// Chunk is one ordered slice of an upload payload. Data aliases the source
// payload; it is valid as long as the payload is.
type Chunk struct {
	Index int
	Data  []byte
	Last  bool
}

// SplitPayload cuts payload into chunks of MaxChunkData bytes. Every chunk
// except the final one is full; a zero-length payload yields no chunks.
// Concatenating the chunk data in order reproduces payload exactly.
func SplitPayload(payload []byte) []Chunk {
	if len(payload) == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, (len(payload)+MaxChunkData-1)/MaxChunkData)
	for i := 0; len(payload) > 0; i++ {
		n := len(payload)
		if n > MaxChunkData {
			n = MaxChunkData
		}
		chunks = append(chunks, Chunk{Index: i, Data: payload[:n]})
		payload = payload[n:]
	}
	chunks[len(chunks)-1].Last = true
	return chunks
}

// EncodeChunk wraps a chunk's data in a plaintext block and encrypts it.
func (e *Encoder) EncodeChunk(c Chunk) ([]byte, error) {
	block, err := MarshalBlock(c.Data)
	if err != nil {
		return nil, err
	}
	return e.cipher.Encrypt(block)
}
