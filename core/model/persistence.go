package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/stepreg/pkg/errors"
)

// fileMagic prefixes every persisted model, followed by one Codec byte.
var fileMagic = [4]byte{'S', 'R', 'G', 'M'}

// SaveModel はモデルを zstd 圧縮の gob としてファイルに保存する
//
//	m, _ := lr.Fit(ctx, ds)
//	err := model.SaveModel(m, "model.srgm")
func SaveModel(model interface{}, filename string) error {
	return SaveModelWithCodec(model, filename, CodecZstd)
}

// SaveModelWithCodec はコーデックを指定してモデルをファイルに保存する
func SaveModelWithCodec(model interface{}, filename string, codec Codec) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()

	w := bufio.NewWriter(file)
	if err := SaveModelToWriter(model, w, codec); err != nil {
		return err
	}
	return errors.Wrap(w.Flush(), "failed to flush file")
}

// LoadModel はファイルからモデルを読み込む。コーデックはヘッダから判定する。
//
//	var m linear.Model
//	err := model.LoadModel(&m, "model.srgm")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, bufio.NewReader(file))
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer, codec Codec) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	body, err := compress(codec, payload.Bytes())
	if err != nil {
		return err
	}

	header := append(fileMagic[:], byte(codec))
	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "failed to write model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	if !bytes.Equal(header[:4], fileMagic[:]) {
		return errors.NewValueError("LoadModel", "not a stepreg model file")
	}
	codec := Codec(header[4])

	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "failed to read model")
	}
	payload, err := decompress(codec, body)
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
