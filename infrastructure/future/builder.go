package future

type Builder struct {
	iFuture     *iFutureImpl
	dataFuture  *iDataFutureImpl
	errorFuture *iErrorFutureImpl
}

func Factory() Builder {
	return Builder{
		iFuture: &iFutureImpl{},
	}
}

func (builder Builder) SetCapacity(capacity int) Builder {
	builder.iFuture.capacity = capacity
	return builder
}

func (builder Builder) SetCount(count int) Builder {
	builder.iFuture.count = count
	return builder
}

func (builder Builder) SetData(data interface{}) Builder {
	if builder.dataFuture == nil {
		builder.dataFuture = &iDataFutureImpl{}
	}
	builder.dataFuture.data = data
	return builder
}

func (builder Builder) SetError(code ErrorCode, message string, reason error) Builder {
	builder.errorFuture = &iErrorFutureImpl{code: code, message: message, reason: reason}
	if builder.dataFuture == nil {
		builder.dataFuture = &iDataFutureImpl{}
	}
	builder.dataFuture.futureError = builder.errorFuture
	return builder
}

func (builder Builder) BuildAndSend() IFuture {
	if builder.iFuture.channel == nil {
		builder.iFuture.channel = make(chan IDataFuture, builder.iFuture.capacity)
	}
	defer close(builder.iFuture.channel)
	builder.iFuture.channel <- builder.dataFuture
	return builder.iFuture
}
